package recio

// Magic identifies a recio index/phys file. Both files carry it in their
// first 8-byte slot.
const Magic uint64 = 0x7D54B70D34A1FA5A

// PhysicalPointer bit layout. Size occupies the top 16 bits; the low 4 bits
// of the remaining 48 are flags, so offsets are restricted to multiples of
// 16 bytes.
const (
	// MaskOffset isolates bits 4-47 (the 44-bit physical offset, still a
	// multiple of 16 since the low 4 bits are flags).
	MaskOffset uint64 = 0x0000FFFFFFFFFFF0

	// FlagLinked marks that another extent follows in the chain.
	FlagLinked uint64 = 1 << 3
	// FlagDiscard marks an extent pending discard.
	FlagDiscard uint64 = 1 << 2
	// FlagArchive marks a record modified since the last backup.
	FlagArchive uint64 = 1 << 1

	flagMask = FlagLinked | FlagDiscard | FlagArchive
)

// MaxRecSize is the largest payload a single extent can carry (size field
// is 16 bits). Payloads at or above this are split into a linked chain.
const MaxRecSize = 65535

// Index file header layout. Slots are 8 bytes each, addressed by slot
// number * 8.
const (
	ioMagic      = 0 // magic constant
	ioIndexSize  = 1 // allocated index file length in bytes
	ioPhysSize   = 2 // allocated phys file length in bytes
	ioFreeSize   = 3 // bytes of free phys space tracked (statistics only)
	ioReservedLo = 4
	ioReservedHi = 14 // slots 4..14 reserved for future/user metadata
	ioFreeRecid  = 15 // LongStack head for freed recids

	// PhysFreeSlotsCount is the number of free-extent size buckets,
	// 16-byte granularity up to MaxRecSize.
	PhysFreeSlotsCount = 4096

	ioPhysFreeBase = 16 // first free-extent LongStack head slot

	// IoUserStart is the byte offset of the first user recid slot.
	IoUserStart = (16 + PhysFreeSlotsCount + 1) * 8

	// LastReservedRecid is the highest recid number reserved by the format
	// (recid 0 is never allocated; this constant exists purely so Open can
	// zero-fill a small header region up front).
	LastReservedRecid = 0
)

// LongStack page layout.
const (
	// LongStackPrefSize is the preferred LongStack page size: an 8-byte
	// page header followed by 204 six-byte value slots.
	LongStackPrefSize = 8 + 204*6

	longStackValueStride = 6
	longStackFirstPos    = 8
)

// Space reclaim modes, passed as Options.SpaceReclaimMode.
const (
	// SpaceReclaimNone disables free-space tracking: delete does not
	// record freed extents or recids at all.
	SpaceReclaimNone = 0
	// SpaceReclaimTrackOnly records free space but never reuses it
	// (values 1-2).
	SpaceReclaimTrackOnly = 1
	// SpaceReclaimTrackAndReuse records and reuses free space (values 3+).
	SpaceReclaimTrackAndReuse = 3

	// DefaultSpaceReclaimMode matches the constructor default in spec.
	DefaultSpaceReclaimMode = 5
)

// numLockStripes is the size of the per-recid read-write lock array.
const numLockStripes = 16

// scratchPoolCapacity is the bounded capacity of the scratch-buffer ring.
const scratchPoolCapacity = 128
