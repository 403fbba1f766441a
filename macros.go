package construct

import "encoding/binary"

// Named instances of the integer and float fields, one per
// signedness, width and byte order, the way format declarations spell
// them.  All of them are immutable and freely shareable.
var (
	// Byte is the unsigned 8-bit field, the most common primitive.
	Byte = IntField(false, 1, binary.BigEndian)

	UBInt8  = IntField(false, 1, binary.BigEndian)
	UBInt16 = IntField(false, 2, binary.BigEndian)
	UBInt24 = IntField(false, 3, binary.BigEndian)
	UBInt32 = IntField(false, 4, binary.BigEndian)
	UBInt64 = IntField(false, 8, binary.BigEndian)

	SBInt8  = IntField(true, 1, binary.BigEndian)
	SBInt16 = IntField(true, 2, binary.BigEndian)
	SBInt24 = IntField(true, 3, binary.BigEndian)
	SBInt32 = IntField(true, 4, binary.BigEndian)
	SBInt64 = IntField(true, 8, binary.BigEndian)

	ULInt8  = IntField(false, 1, binary.LittleEndian)
	ULInt16 = IntField(false, 2, binary.LittleEndian)
	ULInt24 = IntField(false, 3, binary.LittleEndian)
	ULInt32 = IntField(false, 4, binary.LittleEndian)
	ULInt64 = IntField(false, 8, binary.LittleEndian)

	SLInt8  = IntField(true, 1, binary.LittleEndian)
	SLInt16 = IntField(true, 2, binary.LittleEndian)
	SLInt24 = IntField(true, 3, binary.LittleEndian)
	SLInt32 = IntField(true, 4, binary.LittleEndian)
	SLInt64 = IntField(true, 8, binary.LittleEndian)

	BFloat32 = FloatField(4, binary.BigEndian)
	BFloat64 = FloatField(8, binary.BigEndian)
	LFloat32 = FloatField(4, binary.LittleEndian)
	LFloat64 = FloatField(8, binary.LittleEndian)

	// VarInt is the protobuf base-128 varint.
	VarInt Construct = varintCon{}

	// GreedyBytes reads to end of stream.
	GreedyBytes Construct = greedyBytesCon{}

	// Flag is the one-byte boolean.
	Flag Construct = flagCon{}
)
