package format

import "github.com/apache/arrow-go/v18/arrow"

type (
	ColumnType      uint8
	CompressionType uint8
)

const (
	TypeInt64   ColumnType = 0x1 // TypeInt64 stores 64-bit signed integers, 8 bytes per row.
	TypeFloat64 ColumnType = 0x2 // TypeFloat64 stores IEEE 754 doubles, 8 bytes per row.
	TypeString  ColumnType = 0x3 // TypeString stores uvarint length-prefixed UTF-8 strings.
	TypeBool    ColumnType = 0x4 // TypeBool stores bit-packed booleans.

	CompressionNone   CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd   CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2     CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4    CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionSnappy CompressionType = 0x5 // CompressionSnappy represents Snappy compression.
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "Int64"
	case TypeFloat64:
		return "Float64"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	return t >= TypeInt64 && t <= TypeBool
}

// FixedWidth returns the encoded width of one value in bytes, or 0 for variable-width types.
func (t ColumnType) FixedWidth() int {
	switch t {
	case TypeInt64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// ArrowType returns the arrow data type a column of type t decodes into.
func (t ColumnType) ArrowType() arrow.DataType {
	switch t {
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case TypeString:
		return arrow.BinaryTypes.String
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return nil
	}
}

// ColumnTypeOf maps an arrow data type to a column type.
// The second return value is false for unsupported types.
func ColumnTypeOf(dt arrow.DataType) (ColumnType, bool) {
	switch dt.ID() {
	case arrow.INT64:
		return TypeInt64, true
	case arrow.FLOAT64:
		return TypeFloat64, true
	case arrow.STRING:
		return TypeString, true
	case arrow.BOOL:
		return TypeBool, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionSnappy:
		return "Snappy"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionSnappy
}
