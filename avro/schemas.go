package avro

// Avro writer schemas for Iceberg manifests and manifest lists, with the
// field IDs fixed by the Iceberg spec. The partition struct
// is named "r102", the data file record "r2", and the partition summary
// record "r508", matching what Spark/Trino/DuckDB/PyIceberg expect to
// find in manifest Avro files.

// ManifestEntrySchemaV2 is the Avro writer schema for format-version 2
// manifest entries.
const ManifestEntrySchemaV2 = `{
	"type": "record",
	"name": "manifest_entry",
	"fields": [
		{"name": "status", "type": "int", "field-id": 0},
		{"name": "snapshot_id", "type": ["null", "long"], "field-id": 1},
		{"name": "sequence_number", "type": ["null", "long"], "field-id": 3},
		{"name": "file_sequence_number", "type": ["null", "long"], "field-id": 4},
		{"name": "data_file", "type": {
			"type": "record",
			"name": "r2",
			"fields": [
				{"name": "content", "type": "int", "field-id": 134},
				{"name": "file_path", "type": "string", "field-id": 100},
				{"name": "file_format", "type": "string", "field-id": 101},
				{"name": "partition", "type": {"type": "record", "name": "r102", "fields": []}, "field-id": 102},
				{"name": "record_count", "type": "long", "field-id": 103},
				{"name": "file_size_in_bytes", "type": "long", "field-id": 104},
				{"name": "column_sizes", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k117_v118",
					"fields": [{"name": "key", "type": "int", "field-id": 117}, {"name": "value", "type": "long", "field-id": 118}]
				}}], "field-id": 108},
				{"name": "value_counts", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k119_v120",
					"fields": [{"name": "key", "type": "int", "field-id": 119}, {"name": "value", "type": "long", "field-id": 120}]
				}}], "field-id": 109},
				{"name": "null_value_counts", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k121_v122",
					"fields": [{"name": "key", "type": "int", "field-id": 121}, {"name": "value", "type": "long", "field-id": 122}]
				}}], "field-id": 110},
				{"name": "nan_value_counts", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k138_v139",
					"fields": [{"name": "key", "type": "int", "field-id": 138}, {"name": "value", "type": "long", "field-id": 139}]
				}}], "field-id": 137},
				{"name": "lower_bounds", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k126_v127",
					"fields": [{"name": "key", "type": "int", "field-id": 126}, {"name": "value", "type": "bytes", "field-id": 127}]
				}}], "field-id": 125},
				{"name": "upper_bounds", "type": ["null", {"type": "array", "items": {
					"type": "record", "name": "k129_v130",
					"fields": [{"name": "key", "type": "int", "field-id": 129}, {"name": "value", "type": "bytes", "field-id": 130}]
				}}], "field-id": 128},
				{"name": "key_metadata", "type": ["null", "bytes"], "field-id": 131},
				{"name": "split_offsets", "type": ["null", {"type": "array", "items": "long", "element-id": 133}], "field-id": 132},
				{"name": "equality_ids", "type": ["null", {"type": "array", "items": "int", "element-id": 136}], "field-id": 135},
				{"name": "sort_order_id", "type": ["null", "int"], "field-id": 140}
			]
		}, "field-id": 2}
	]
}`

// manifestEntryV3DataFileExtra holds the v3-only data_file fields
// 142-145 that ManifestEntrySchema appends to ManifestEntrySchemaV2's
// data_file record.
const manifestEntryV3DataFileExtra = `,
				{"name": "first_row_id", "type": ["null", "long"], "field-id": 142},
				{"name": "referenced_data_file", "type": ["null", "string"], "field-id": 143},
				{"name": "content_offset", "type": ["null", "long"], "field-id": 144},
				{"name": "content_size_in_bytes", "type": ["null", "long"], "field-id": 145}`

// ManifestFileSchemaV2 is the Avro writer schema for a format-version 2
// manifest-list entry ("manifest_file" record).
const ManifestFileSchemaV2 = `{
	"type": "record",
	"name": "manifest_file",
	"fields": [
		{"name": "manifest_path", "type": "string", "field-id": 500},
		{"name": "manifest_length", "type": "long", "field-id": 501},
		{"name": "partition_spec_id", "type": "int", "field-id": 502},
		{"name": "content", "type": "int", "field-id": 517},
		{"name": "sequence_number", "type": "long", "field-id": 515},
		{"name": "min_sequence_number", "type": "long", "field-id": 516},
		{"name": "added_snapshot_id", "type": "long", "field-id": 503},
		{"name": "added_files_count", "type": ["null", "int"], "field-id": 504},
		{"name": "existing_files_count", "type": ["null", "int"], "field-id": 505},
		{"name": "deleted_files_count", "type": ["null", "int"], "field-id": 506},
		{"name": "added_rows_count", "type": ["null", "long"], "field-id": 512},
		{"name": "existing_rows_count", "type": ["null", "long"], "field-id": 513},
		{"name": "deleted_rows_count", "type": ["null", "long"], "field-id": 514},
		{"name": "partitions", "type": ["null", {"type": "array", "items": {
			"type": "record",
			"name": "r508",
			"fields": [
				{"name": "contains_null", "type": "boolean", "field-id": 509},
				{"name": "contains_nan", "type": ["null", "boolean"], "field-id": 518},
				{"name": "lower_bound", "type": ["null", "bytes"], "field-id": 510},
				{"name": "upper_bound", "type": ["null", "bytes"], "field-id": 511}
			]
		}, "element-id": 508}], "field-id": 507},
		{"name": "key_metadata", "type": ["null", "bytes"], "field-id": 519}
	]
}`

// manifestFileV3Extra is the v3 addition to manifest_file: first_row_id
// takes the next id after key_metadata (519), keeping ids unique within
// the record as Spark/Trino/PyIceberg readers require.
const manifestFileV3Extra = `,
		{"name": "first_row_id", "type": ["null", "long"], "field-id": 520}`

// ManifestEntrySchema returns the manifest_entry writer schema for the
// given table format version (2 or 3).
func ManifestEntrySchema(formatVersion int) string {
	if formatVersion >= 3 {
		closeIdx := len(ManifestEntrySchemaV2) - len("\n\t\t\t]\n\t\t}, \"field-id\": 2}\n\t]\n}")
		return ManifestEntrySchemaV2[:closeIdx] + manifestEntryV3DataFileExtra + ManifestEntrySchemaV2[closeIdx:]
	}
	return ManifestEntrySchemaV2
}

// ManifestFileSchema returns the manifest_file writer schema for the
// given table format version.
func ManifestFileSchema(formatVersion int) string {
	if formatVersion >= 3 {
		closeIdx := len(ManifestFileSchemaV2) - len("\n\t]\n}")
		return ManifestFileSchemaV2[:closeIdx] + manifestFileV3Extra + ManifestFileSchemaV2[closeIdx:]
	}
	return ManifestFileSchemaV2
}
