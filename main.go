package main

import "pokebattle-backend/cmd"

func main() {
	cmd.Run()
}
