package main

import "homecare-app-server/cmd"

func main() {
	cmd.Execute()
}
