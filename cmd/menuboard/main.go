package main

import "github.com/zfogg/menuboard/internal/cmd"

func main() {
	cmd.Execute()
}
