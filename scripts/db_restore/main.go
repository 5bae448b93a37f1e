package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/garnizeh/showcase/internal/config"
)

// Stop the server before restoring: the copy replaces the database file and
// drops its WAL and shared-memory files.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	from := flag.String("from", "", "Backup file (default <database_path>.bak)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	dst := cfg.DatabasePath
	src := *from
	if src == "" {
		src = dst + ".bak"
	}

	if err := restore(src, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database %s restored from %s.\n", dst, src)
}

func restore(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}
