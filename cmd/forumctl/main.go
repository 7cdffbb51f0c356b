package main

import (
	_ "time/tzdata"

	"sunrise/internal/cli/forumctl"
)

func main() {
	forumctl.Execute()
}
