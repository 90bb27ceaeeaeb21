// pkg/testutil/pe.go
// DEPENDENCIES: None
// PURPOSE: Build minimal PE executables that debug/pe can parse

package testutil

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"testing"
)

const (
	peOffset       = 0x40
	sectionFileOff = 0x200
	sectionRVA     = 0x1000
)

// BuildPE returns a minimal executable for machine (pe.IMAGE_FILE_MACHINE_AMD64
// or pe.IMAGE_FILE_MACHINE_I386) whose import table names the given DLLs.
// Each DLL gets a single named import so the table survives parsing.
func BuildPE(t testing.TB, machine uint16, dlls ...string) []byte {
	t.Helper()

	pe64 := machine == pe.IMAGE_FILE_MACHINE_AMD64 || machine == pe.IMAGE_FILE_MACHINE_ARM64
	section := buildImportSection(dlls, pe64)

	var optional interface{}
	var optionalSize uint16
	if pe64 {
		oh := pe.OptionalHeader64{
			Magic:               0x20b,
			ImageBase:           0x140000000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x200,
			SizeOfImage:         sectionRVA + uint32(len(section)),
			SizeOfHeaders:       sectionFileOff,
			Subsystem:           pe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
			NumberOfRvaAndSizes: 16,
		}
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_IMPORT] = pe.DataDirectory{
			VirtualAddress: sectionRVA,
			Size:           uint32(20 * (len(dlls) + 1)),
		}
		optional = &oh
		optionalSize = uint16(binary.Size(oh))
	} else {
		oh := pe.OptionalHeader32{
			Magic:               0x10b,
			ImageBase:           0x400000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x200,
			SizeOfImage:         sectionRVA + uint32(len(section)),
			SizeOfHeaders:       sectionFileOff,
			Subsystem:           pe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
			NumberOfRvaAndSizes: 16,
		}
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_IMPORT] = pe.DataDirectory{
			VirtualAddress: sectionRVA,
			Size:           uint32(20 * (len(dlls) + 1)),
		}
		optional = &oh
		optionalSize = uint16(binary.Size(oh))
	}

	var buf bytes.Buffer
	dos := make([]byte, peOffset)
	copy(dos, "MZ")
	binary.LittleEndian.PutUint32(dos[0x3c:], peOffset)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	write := func(v interface{}) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("build pe: %v", err)
		}
	}

	write(pe.FileHeader{
		Machine:              machine,
		NumberOfSections:     1,
		SizeOfOptionalHeader: optionalSize,
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE,
	})
	write(optional)

	var name [8]uint8
	copy(name[:], ".idata")
	write(pe.SectionHeader32{
		Name:             name,
		VirtualSize:      uint32(len(section)),
		VirtualAddress:   sectionRVA,
		SizeOfRawData:    uint32(len(section)),
		PointerToRawData: sectionFileOff,
		Characteristics:  0xC0000040,
	})

	if buf.Len() > sectionFileOff {
		t.Fatalf("build pe: headers overflow section offset")
	}
	buf.Write(make([]byte, sectionFileOff-buf.Len()))
	buf.Write(section)
	return buf.Bytes()
}

// buildImportSection lays out descriptors, thunks, hint/name entries and
// DLL names inside one section starting at sectionRVA.
func buildImportSection(dlls []string, pe64 bool) []byte {
	thunkSize := 4
	if pe64 {
		thunkSize = 8
	}

	descSize := 20 * (len(dlls) + 1)
	data := make([]byte, descSize)

	for i, dll := range dlls {
		thunkOff := len(data)
		data = append(data, make([]byte, 2*thunkSize)...)

		hintOff := len(data)
		data = append(data, 0, 0)
		data = append(data, []byte("Direct3DCreate\x00")...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}

		nameOff := len(data)
		data = append(data, []byte(dll+"\x00")...)

		if pe64 {
			binary.LittleEndian.PutUint64(data[thunkOff:], uint64(sectionRVA+hintOff))
		} else {
			binary.LittleEndian.PutUint32(data[thunkOff:], uint32(sectionRVA+hintOff))
		}

		desc := data[20*i:]
		binary.LittleEndian.PutUint32(desc[0:], uint32(sectionRVA+thunkOff))  // OriginalFirstThunk
		binary.LittleEndian.PutUint32(desc[12:], uint32(sectionRVA+nameOff))  // Name
		binary.LittleEndian.PutUint32(desc[16:], uint32(sectionRVA+thunkOff)) // FirstThunk
	}

	// pad to file alignment
	if rem := len(data) % 0x200; rem != 0 {
		data = append(data, make([]byte, 0x200-rem)...)
	}
	return data
}
