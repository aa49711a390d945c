package main

import "github.com/treeverse/fileconn/cmd/fileconn/cmd"

func main() {
	cmd.Execute()
}
