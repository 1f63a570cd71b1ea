package main

import "github.com/KaramelBytes/reportloom/cmd"

func main() {
	cmd.Execute()
}
