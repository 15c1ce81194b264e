// Package aedatcsv is a CLI utility that dumps an event stream as CSV.
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"aedat"
	"aedat/pkg/payload"
	"aedat/pkg/schema"
)

const usage = `dump an event stream as t,x,y,polarity rows
example: aedatcsv ./recording.aedat4 0`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	args := os.Args
	if len(args) != 3 {
		fmt.Println(usage)
		return nil
	}

	id, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil {
		return fmt.Errorf("parse stream id: %w", err)
	}
	streamID := int32(id)

	d, err := aedat.OpenFile(args[1])
	if err != nil {
		return err
	}
	defer d.Close()

	if err := checkStream(d.Streams(), streamID); err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"t", "x", "y", "polarity"}); err != nil {
		return err
	}

	for {
		packet, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		if packet.StreamID != streamID {
			continue
		}

		events := packet.Batch.(*payload.EventBatch) //nolint:forcetypeassert
		if err := writeEvents(w, events); err != nil {
			return err
		}
	}
}

// checkStream verifies that the requested stream exists and carries events.
func checkStream(streams []schema.Descriptor, streamID int32) error {
	for _, stream := range streams {
		if stream.ID != streamID {
			continue
		}
		if stream.Kind != schema.KindEvents {
			return fmt.Errorf("stream %d is %v, not events", streamID, stream.Kind)
		}
		return nil
	}
	return fmt.Errorf("no stream with id %d", streamID)
}

func writeEvents(w *csv.Writer, events *payload.EventBatch) error {
	for i := 0; i < events.Len(); i++ {
		polarity := "0"
		if events.On[i] {
			polarity = "1"
		}
		row := []string{
			strconv.FormatInt(events.T[i], 10),
			strconv.Itoa(int(events.X[i])),
			strconv.Itoa(int(events.Y[i])),
			polarity,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
