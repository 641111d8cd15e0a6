package main

import "github.com/andresmejia3/ocrline/cmd"

func main() {
	cmd.Execute()
}
