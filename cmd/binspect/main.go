package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/binwire/construct"
	"github.com/binwire/construct/formats"
)

type args struct {
	format    *string
	inputPath *string
	sizeOnly  *bool
}

func readArgs() *args {
	a := &args{
		format:    flag.String("format", "", "Name of the registered format to decode with"),
		inputPath: flag.String("input", "", "Path to the binary input file"),
		sizeOnly:  flag.Bool("size-only", false, "Print the format's static size and exit"),
	}
	flag.Parse()
	return a
}

func knownFormats() []string {
	names := make([]string, 0, len(formats.Registry))
	for name := range formats.Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	a := readArgs()

	format, ok := formats.Registry[*a.format]
	if !ok {
		log.Fatalf("unknown format %q, pick one of %v", *a.format, knownFormats())
	}

	if *a.sizeOnly {
		size, err := construct.Sizeof(format)
		if err != nil {
			log.Fatalf("format has no static size: %v", err)
		}
		fmt.Println(size)
		return
	}

	if *a.inputPath == "" {
		log.Fatal("missing -input path")
	}
	data, err := os.ReadFile(*a.inputPath)
	if err != nil {
		log.Fatal(err)
	}

	value, err := construct.Parse(format, data)
	if err != nil {
		log.Fatalf("cannot decode %s: %v", *a.inputPath, err)
	}
	fmt.Println(render(value))
}

func render(value any) string {
	if con, ok := value.(*construct.Container); ok {
		return con.String()
	}
	return fmt.Sprintf("%v", value)
}
