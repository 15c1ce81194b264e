// Package aedatinfo is a CLI utility that summarizes AEDAT4 files.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"aedat"
	"aedat/pkg/codec"
	"aedat/pkg/payload"

	"gopkg.in/yaml.v2"
)

const usage = `print a YAML summary of an AEDAT4 file
example: aedatinfo ./recording.aedat4`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	args := os.Args
	if len(args) != 2 {
		fmt.Println(usage)
		return nil
	}

	d, err := aedat.OpenFile(args[1])
	if err != nil {
		return err
	}
	defer d.Close()

	summary, err := summarize(d)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = os.Stdout.Write(out)
	return err
}

type fileSummary struct {
	Version     string          `yaml:"version"`
	Indexed     bool            `yaml:"indexed"`
	Streams     []streamSummary `yaml:"streams"`
	Diagnostics int             `yaml:"diagnostics"`
}

type streamSummary struct {
	ID             int32  `yaml:"id"`
	Type           string `yaml:"type"`
	Geometry       string `yaml:"geometry,omitempty"`
	Packets        int    `yaml:"packets"`
	Elements       int    `yaml:"elements"`
	FirstTimestamp int64  `yaml:"firstTimestamp"`
	LastTimestamp  int64  `yaml:"lastTimestamp"`
	Codecs         string `yaml:"codecs,omitempty"`
}

type streamTally struct {
	packets  int
	elements int
	first    int64
	last     int64
	hasTime  bool
	codecs   map[codec.Kind]bool
}

// summarize drains the decoder and tallies every stream.
func summarize(d *aedat.Decoder) (*fileSummary, error) {
	tallies := make(map[int32]*streamTally)
	diagnostics := 0

	for {
		packet, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		tally, exist := tallies[packet.StreamID]
		if !exist {
			tally = &streamTally{codecs: map[codec.Kind]bool{}}
			tallies[packet.StreamID] = tally
		}

		tally.packets++
		tally.elements += batchLen(packet.Batch)
		tally.codecs[packet.Codec] = true
		diagnostics += len(packet.Diagnostics)

		if first, last, ok := packet.Batch.TimeRange(); ok {
			if !tally.hasTime {
				tally.first = first
				tally.hasTime = true
			}
			tally.last = last
		}
	}

	summary := &fileSummary{
		Version:     d.Header().Version,
		Indexed:     d.Header().HasFileData(),
		Diagnostics: diagnostics,
	}
	for _, stream := range d.Streams() {
		row := streamSummary{
			ID:   stream.ID,
			Type: stream.TypeIdentifier,
		}
		if stream.Width != 0 || stream.Height != 0 {
			row.Geometry = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
		}
		if tally, exist := tallies[stream.ID]; exist {
			row.Packets = tally.packets
			row.Elements = tally.elements
			row.FirstTimestamp = tally.first
			row.LastTimestamp = tally.last
			row.Codecs = codecList(tally.codecs)
		}
		summary.Streams = append(summary.Streams, row)
	}
	return summary, nil
}

func batchLen(batch payload.Batch) int {
	switch b := batch.(type) {
	case *payload.EventBatch:
		return b.Len()
	case *payload.Frame:
		return 1
	case *payload.ImuBatch:
		return b.Len()
	case *payload.TriggerBatch:
		return b.Len()
	}
	return 0
}

func codecList(kinds map[codec.Kind]bool) string {
	names := make([]string, 0, len(kinds))
	for kind := range kinds {
		names = append(names, kind.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
