package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icebergd/coreberg/avro"
	"github.com/icebergd/coreberg/manifest"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrObjectNotFound is returned when manifest dump names a path the
// object store has no data for.
var ErrObjectNotFound = errors.MustNewCode("icebergctl.object_not_found")

var (
	dumpAsList        bool
	dumpFormatVersion int
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect manifest and manifest-list files",
}

var manifestDumpCmd = &cobra.Command{
	Use:   "dump <path>",
	Short: "Decode a manifest (or manifest-list) Avro file and print its entries",
	Long: `Decode an Avro OCF manifest file from the object store and print one
JSON document per entry.

Examples:
  icebergctl manifest dump warehouse/events/metadata/01H...-m0.avro
  icebergctl manifest dump warehouse/events/metadata/snap-1700000000000.avro --list`,
	Args: cobra.ExactArgs(1),
	RunE: runManifestDump,
}

func runManifestDump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	_, db, _, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	data, found, err := db.Storage().Get(ctx, path)
	if err != nil {
		return err
	}
	if !found {
		return errors.Newf(ErrObjectNotFound, "no object at %q", path)
	}

	file, err := avro.ReadOCF(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, block := range file.Blocks {
		buf := block.Payload
		for i := int64(0); i < block.ObjectCount; i++ {
			var record any
			var n int
			if dumpAsList {
				record, n, err = manifest.DecodeManifestListEntry(buf, dumpFormatVersion)
			} else {
				record, n, err = manifest.DecodeManifestEntry(buf, dumpFormatVersion)
			}
			if err != nil {
				return err
			}
			buf = buf[n:]

			line, err := json.Marshal(record)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(line))
		}
	}
	return nil
}

func init() {
	manifestDumpCmd.Flags().BoolVar(&dumpAsList, "list", false, "decode as a manifest list instead of a manifest")
	manifestDumpCmd.Flags().IntVar(&dumpFormatVersion, "format-version", 2, "format version the file was written at")

	manifestCmd.AddCommand(manifestDumpCmd)
}
