// Package main provides a command-line utility to dump loam chunk
// file contents. It lists every chunk with its ID and payload size,
// and reports the root ID from the trailing checkpoint.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/scigolib/loam"
)

func main() {
	noCrc := flag.Bool("nocrc", false, "file was written without chunk checksums")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: loamdump [flags] <file.loam>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	opts := loam.ReaderOptions{NoChecksum: *noCrc}
	reader, err := loam.NewReaderWithOptions(args[0], opts)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("Failed to close file: %v", err)
		}
	}()

	fmt.Printf("%s: %d bytes\n", args[0], reader.Len())

	nChunks := 0
	walkErr := reader.Walk(func(id loam.ID, payload []byte) bool {
		fmt.Printf("  %-12s payload %d bytes\n", id, len(payload))
		nChunks++
		return true
	})
	if walkErr != nil {
		log.Fatalf("Chunk walk failed: %v", walkErr)
	}
	fmt.Printf("%d chunks\n", nChunks)

	root, err := reader.Root()
	if err != nil {
		log.Fatalf("No checkpoint: %v", err)
	}
	fmt.Printf("root: %s\n", root)
}
