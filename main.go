package main

import "rfid-access-console/cmd"

func main() {
	cmd.Execute()
}
