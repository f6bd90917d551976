package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/icebergd/coreberg/catalogstore/sqlite"
	"github.com/icebergd/coreberg/commit"
	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/manifest"
	"github.com/icebergd/coreberg/paths"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrTableNotFound is returned when a command names a table the
// catalog has no pointer for.
var ErrTableNotFound = errors.MustNewCode("icebergctl.table_not_found")

var (
	createSchemaFile    string
	createFormatVersion int
	createLocation      string

	appendDataFile string
	appendRows     int64
	appendFileSize int64
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Create, mutate, and inspect tables",
}

var tableCreateCmd = &cobra.Command{
	Use:   "create <table>",
	Short: "Create a new table",
	Long: `Create a new table with an assert-create commit.

The schema is read from --schema (Iceberg schema JSON); without it a
small demo schema (id long, ts timestamptz, data variant) is used.

Examples:
  icebergctl table create events
  icebergctl table create events --schema schema.json --format-version 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTableCreate,
}

var tableAppendCmd = &cobra.Command{
	Use:   "append <table>",
	Short: "Commit an append snapshot referencing one data file",
	Long: `Write a manifest plus manifest list for a single data file and
commit the resulting snapshot to the table's main branch.

The data file itself is not written, only the metadata that references
it, so --data-file can name any path.

Examples:
  icebergctl table append events --data-file data/00000-0.parquet --rows 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runTableAppend,
}

var tableDescribeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Print a table's current metadata JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableDescribe,
}

var tableHistoryCmd = &cobra.Command{
	Use:   "history <table>",
	Short: "Print a table's snapshot log",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableHistory,
}

// loadTable reads the table's current metadata through the catalog
// pointer, the same path the commit engine takes.
func loadTable(ctx context.Context, db *sqlite.DB, tableID string) (iceberg.TableMetadata, error) {
	path, _, exists, err := db.Pointers().LoadPointer(ctx, tableID)
	if err != nil {
		return iceberg.TableMetadata{}, err
	}
	if !exists {
		return iceberg.TableMetadata{}, errors.Newf(ErrTableNotFound, "table %q does not exist", tableID)
	}
	data, found, err := db.Storage().Get(ctx, path)
	if err != nil {
		return iceberg.TableMetadata{}, err
	}
	if !found {
		return iceberg.TableMetadata{}, errors.Newf(ErrTableNotFound, "table %q pointer references missing metadata %q", tableID, path)
	}
	var meta iceberg.TableMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return iceberg.TableMetadata{}, err
	}
	return meta, nil
}

// demoSchema is used by table create when no --schema file is given.
func demoSchema() iceberg.Schema {
	return iceberg.Schema{SchemaID: 0, Struct: iceberg.StructType{Fields: []iceberg.NestedField{
		{ID: 1, Name: "id", Required: true, Type: iceberg.Int64},
		{ID: 2, Name: "ts", Required: false, Type: iceberg.Timestamptz},
		{ID: 3, Name: "data", Required: false, Type: iceberg.Variant},
	}}}
}

func runTableCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	tableID := args[0]

	cfg, db, engine, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := demoSchema()
	if createSchemaFile != "" {
		data, err := os.ReadFile(createSchemaFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &schema); err != nil {
			return err
		}
	}

	location := createLocation
	if location == "" {
		location = cfg.Warehouse + "/" + tableID
	}

	b := iceberg.NewTableBuilder(createFormatVersion, location)
	if _, err := b.AddSchema(schema); err != nil {
		return err
	}
	if _, err := b.SetCurrentSchema(schema.SchemaID); err != nil {
		return err
	}
	seed, err := b.Build()
	if err != nil {
		return err
	}

	meta, err := engine.Commit(ctx, commit.Request{
		TableID:         tableID,
		Requirements:    []commit.Requirement{commit.AssertCreate{}},
		InitialMetadata: &seed,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("table", tableID).
		Str("uuid", meta.TableUUID).
		Str("location", meta.Location).
		Int("format_version", meta.FormatVersion).
		Msg("table created")
	fmt.Fprintf(cmd.OutOrStdout(), "created table %s at %s\n", tableID, meta.Location)
	return nil
}

func runTableAppend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	tableID := args[0]

	_, db, engine, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	meta, err := loadTable(ctx, db, tableID)
	if err != nil {
		return err
	}

	snapshotID := time.Now().UnixMilli()
	seq := meta.LastSequenceNumber + 1
	pm := paths.NewFilesystemManager(meta.Location)

	dataFile := appendDataFile
	if dataFile == "" {
		dataFile = pm.DataFilePath("", fmt.Sprintf("%d.parquet", snapshotID))
	}

	w := manifest.NewWriter(meta.FormatVersion, meta.DefaultSpecID)
	w.Logger = *logger
	w.Add(manifest.ManifestEntry{
		Status:         manifest.StatusAdded,
		SnapshotID:     &snapshotID,
		SequenceNumber: &seq,
		DataFile: manifest.DataFile{
			Content:         manifest.ContentData,
			FilePath:        dataFile,
			FileFormat:      "PARQUET",
			RecordCount:     appendRows,
			FileSizeInBytes: appendFileSize,
		},
	})

	var manifestBuf bytes.Buffer
	if err := w.WriteTo(&manifestBuf); err != nil {
		return err
	}
	manifestPath := pm.ManifestPath(manifest.NewManifestFileName(0))
	if err := db.Storage().PutIfAbsent(ctx, manifestPath, manifestBuf.Bytes()); err != nil {
		return err
	}

	listEntry, err := w.Summarize(manifestPath, int64(manifestBuf.Len()), snapshotID)
	if err != nil {
		return err
	}
	lw := manifest.NewListWriter(meta.FormatVersion)
	lw.Add(listEntry)
	var listBuf bytes.Buffer
	if err := lw.WriteTo(&listBuf); err != nil {
		return err
	}
	listPath := pm.ManifestListPath(snapshotID)
	if err := db.Storage().PutIfAbsent(ctx, listPath, listBuf.Bytes()); err != nil {
		return err
	}

	var parent *int64
	var refAssert *int64
	if meta.CurrentSnapshotID != nil {
		id := *meta.CurrentSnapshotID
		parent = &id
		refID := id
		refAssert = &refID
	}

	snap := iceberg.Snapshot{
		SnapshotID:       snapshotID,
		ParentSnapshotID: parent,
		TimestampMs:      snapshotID,
		ManifestList:     listPath,
		Summary: iceberg.SnapshotSummary{
			Operation: iceberg.OpAppend,
			Metrics: map[string]string{
				"added-data-files": "1",
				"added-records":    fmt.Sprintf("%d", appendRows),
			},
		},
		SchemaID: &meta.CurrentSchemaID,
	}

	newMeta, err := engine.Commit(ctx, commit.Request{
		TableID:      tableID,
		Requirements: []commit.Requirement{commit.AssertRefSnapshotID{Ref: iceberg.MainBranch, SnapshotID: refAssert}},
		Updates:      []commit.Update{commit.AddSnapshot{Snapshot: snap, AddedRows: appendRows}},
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("table", tableID).
		Int64("snapshot_id", snapshotID).
		Int64("sequence_number", newMeta.LastSequenceNumber).
		Str("manifest_list", listPath).
		Msg("append committed")
	fmt.Fprintf(cmd.OutOrStdout(), "committed snapshot %d (seq %d)\n", snapshotID, newMeta.LastSequenceNumber)
	return nil
}

func runTableDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, db, _, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	meta, err := loadTable(ctx, db, args[0])
	if err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}

func runTableHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, db, _, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	meta, err := loadTable(ctx, db, args[0])
	if err != nil {
		return err
	}
	for _, entry := range meta.SnapshotLog {
		ts := time.UnixMilli(entry.TimestampMs).UTC().Format(time.RFC3339)
		marker := " "
		if meta.CurrentSnapshotID != nil && *meta.CurrentSnapshotID == entry.SnapshotID {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d  %s\n", marker, entry.SnapshotID, ts)
	}
	return nil
}

func init() {
	tableCreateCmd.Flags().StringVar(&createSchemaFile, "schema", "", "path to Iceberg schema JSON")
	tableCreateCmd.Flags().IntVar(&createFormatVersion, "format-version", 2, "table format version (2 or 3)")
	tableCreateCmd.Flags().StringVar(&createLocation, "location", "", "table location (default <warehouse>/<table>)")

	tableAppendCmd.Flags().StringVar(&appendDataFile, "data-file", "", "data file path to reference")
	tableAppendCmd.Flags().Int64Var(&appendRows, "rows", 0, "record count of the data file")
	tableAppendCmd.Flags().Int64Var(&appendFileSize, "file-size", 0, "byte size of the data file")

	tableCmd.AddCommand(tableCreateCmd)
	tableCmd.AddCommand(tableAppendCmd)
	tableCmd.AddCommand(tableDescribeCmd)
	tableCmd.AddCommand(tableHistoryCmd)
}
