package codec

import (
	"encoding/binary"
	"fmt"
)

// Encoding is the CDR encoding token naming the platform a file was
// written on. Only the byte order matters for decoding.
type Encoding int32

const (
	NetworkEncoding    Encoding = 1
	SunEncoding        Encoding = 2
	VaxEncoding        Encoding = 3
	DECStationEncoding Encoding = 4
	SGiEncoding        Encoding = 5
	IBMPCEncoding      Encoding = 6
	IBMRSEncoding      Encoding = 7
	HostEncoding       Encoding = 8
	PPCEncoding        Encoding = 9
	HPEncoding         Encoding = 11
	NeXTEncoding       Encoding = 12
	AlphaOSF1Encoding  Encoding = 13
	AlphaVMSdEncoding  Encoding = 14
	AlphaVMSgEncoding  Encoding = 15
	AlphaVMSiEncoding  Encoding = 16
	ARMLittleEncoding  Encoding = 17
	ARMBigEncoding     Encoding = 18
	IA64VMSiEncoding   Encoding = 19
)

var encodingNames = map[Encoding]string{
	NetworkEncoding: "NETWORK", SunEncoding: "SUN", VaxEncoding: "VAX",
	DECStationEncoding: "DECSTATION", SGiEncoding: "SGI", IBMPCEncoding: "IBMPC",
	IBMRSEncoding: "IBMRS", HostEncoding: "HOST", PPCEncoding: "PPC",
	HPEncoding: "HP", NeXTEncoding: "NeXT", AlphaOSF1Encoding: "ALPHAOSF1",
	AlphaVMSdEncoding: "ALPHAVMSd", AlphaVMSgEncoding: "ALPHAVMSg",
	AlphaVMSiEncoding: "ALPHAVMSi", ARMLittleEncoding: "ARM_LITTLE",
	ARMBigEncoding: "ARM_BIG", IA64VMSiEncoding: "IA64VMSi",
}

func (e Encoding) String() string {
	if s, ok := encodingNames[e]; ok {
		return s
	}
	return fmt.Sprintf("ENCODING_<%d>", int32(e))
}

// Valid reports whether e is a defined encoding token.
func (e Encoding) Valid() bool {
	_, ok := encodingNames[e]
	return ok
}

// Supported reports whether this reader can decode data written with e.
// The three retired VMS floating formats use non-IEEE doubles and are
// rejected rather than silently misdecoded.
func (e Encoding) Supported() bool {
	switch e {
	case VaxEncoding, AlphaVMSdEncoding, AlphaVMSgEncoding:
		return false
	}
	return e.Valid()
}

// ByteOrder resolves the encoding token to the byte order of the file's
// variable data. Record bookkeeping fields are always big-endian; only
// value payloads follow the declared encoding.
func (e Encoding) ByteOrder() (binary.ByteOrder, error) {
	switch e {
	case NetworkEncoding, SunEncoding, SGiEncoding, IBMRSEncoding,
		PPCEncoding, HPEncoding, NeXTEncoding, ARMBigEncoding:
		return binary.BigEndian, nil
	case DECStationEncoding, IBMPCEncoding, AlphaOSF1Encoding,
		AlphaVMSiEncoding, ARMLittleEncoding, IA64VMSiEncoding, HostEncoding:
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("codec: no byte order for encoding %s", e)
}

// NativeEncoding resolves the running host's byte order to a concrete
// encoding token. Files record the resolved token rather than HostEncoding,
// so a reader never has to guess what host wrote them.
func NativeEncoding() Encoding {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 1 {
		return IBMPCEncoding
	}
	return NetworkEncoding
}

// Majority is the storage order of multi-dimensional array values.
type Majority int32

const (
	RowMajority    Majority = 1
	ColumnMajority Majority = 2
)

func (m Majority) String() string {
	switch m {
	case RowMajority:
		return "Row_major"
	case ColumnMajority:
		return "Column_major"
	}
	return fmt.Sprintf("MAJORITY_<%d>", int32(m))
}
