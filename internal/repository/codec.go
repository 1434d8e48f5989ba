package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pokebattle-backend/internal/store"
)

const (
	usersCollection   = "users"
	battlesCollection = "battles"
)

// Collections lists every collection the repositories persist to.
var Collections = []string{usersCollection, battlesCollection}

func toRecord(v any) (store.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec store.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return rec, nil
}

func fromRecord[T any](rec store.Record) (*T, error) {
	if rec == nil {
		return nil, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptData, err)
	}
	return &v, nil
}

func fromRecords[T any](recs []store.Record) ([]*T, error) {
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v, err := fromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
