package commands

import (
	"fmt"
	"os"

	"sentra/internal/conformance"
	"sentra/internal/pipeline"
)

// TestCommand runs the *.bf/*.expected conformance fixtures under dir.
func TestCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bfc test <dir>")
	}
	dir := args[0]

	files, err := conformance.Discover(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no fixtures found under", dir)
		return nil
	}

	suite := conformance.Run(files, pipeline.DefaultOptions())
	fmt.Print(suite.Summary())
	if suite.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
