package main

import "github.com/kamilpajak/authsmoke/cmd/authsmoke"

func main() {
	authsmoke.Execute()
}
