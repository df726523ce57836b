package main

import (
	"fmt"
	"os"

	_ "github.com/quillcms/plugins/passwordlogin"
	_ "github.com/quillcms/plugins/redirections"
	_ "github.com/quillcms/plugins/tagmanager"
	_ "github.com/quillcms/plugins/webhook"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
