package main

import "PracticeLog/cmd"

func main() {
	cmd.Execute()
}
