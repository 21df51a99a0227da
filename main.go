package main

import "github.com/hayasui/pixiv-bookmark-mirror/cmds"

func main() {
	cmds.Execute()
}
