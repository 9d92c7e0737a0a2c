package cmd

import (
	"errors"
	"fmt"
	"os"
)

var (
	errUsage   = errors.New("usage")
	errInvalid = errors.New("invalid envelope")
)

func Execute() int {
	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
