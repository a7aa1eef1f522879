package main

import "github.com/dok75/clinic_backend/cmd"

func main() {
	cmd.Execute()
}
