package main

import "github.com/Tiliavir/timesheet/cmd"

func main() {
	cmd.Execute()
}
