package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

// oleMagic starts every OLE2 compound file, the container of BIFF8 .xls
// workbooks (and of encrypted xlsx packages).
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var errCorruptCompound = errors.New("corrupt xls workbook: bad allocation table")

const (
	oleHeaderSize   = 512
	oleSectorSize   = 512
	oleEndOfChain   = 0xFFFFFFFE
	oleMaxRegSector = 0xFFFFFFFA
	oleDirEntrySize = 128
)

func isCompoundFile(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}

// decodeLegacySpreadsheet reads the first sheet of a BIFF8 workbook. Cells
// come back as stored: numbers unformatted, dates with a custom format as
// RFC 3339 timestamps.
func decodeLegacySpreadsheet(data []byte) (table Table, err error) {
	if err := checkCompoundFile(data); err != nil {
		return Table{}, err
	}

	// The reader indexes its record maps without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			table, err = Table{}, fmt.Errorf("corrupt xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Table{}, err
	}
	if wb == nil {
		return Table{}, errors.New("no workbook stream in xls file")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return Table{}, errNoColumns
	}

	i, last := 0, int(sheet.MaxRow)
	return tableFromSheet(func() ([]string, bool, error) {
		if i > last {
			return nil, false, nil
		}
		row := legacyRow(sheet, i)
		i++
		if row == nil {
			return nil, true, nil
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		return trimTrailingEmpty(cells), true, nil
	})
}

// legacyRow returns row i, or nil when the sheet holds no record for it.
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// checkCompoundFile rejects containers whose allocation tables do not cover
// every sector a stream can reach. The xls reader terminates the process
// when a sector chain walks past its table, so this runs before it.
func checkCompoundFile(data []byte) error {
	if len(data) < oleHeaderSize {
		return errCorruptCompound
	}
	le := binary.LittleEndian
	if le.Uint16(data[28:]) != 0xFFFE || le.Uint16(data[30:]) != 9 || le.Uint16(data[32:]) != 6 {
		return errors.New("unsupported xls container layout")
	}

	nsect := uint32((len(data) - oleHeaderSize + oleSectorSize - 1) / oleSectorSize)
	sector := func(sid uint32) ([]uint32, bool) {
		if sid >= nsect {
			return nil, false
		}
		raw := make([]byte, oleSectorSize)
		copy(raw, data[oleHeaderSize+int(sid)*oleSectorSize:])
		vals := make([]uint32, oleSectorSize/4)
		for i := range vals {
			vals[i] = le.Uint32(raw[i*4:])
		}
		return vals, true
	}

	var sat []uint32
	for i := range min(le.Uint32(data[44:]), 109) {
		vals, ok := sector(le.Uint32(data[76+4*i:]))
		if !ok {
			return errCorruptCompound
		}
		sat = append(sat, vals...)
	}
	for sid, steps := le.Uint32(data[68:]), uint32(0); sid != oleEndOfChain; steps++ {
		dif, ok := sector(sid)
		if !ok || steps > nsect {
			return errCorruptCompound
		}
		// Unused slots still extend the reader's table.
		for _, fs := range dif[:len(dif)-1] {
			vals, ok := sector(fs)
			if !ok {
				vals = make([]uint32, oleSectorSize/4)
			}
			sat = append(sat, vals...)
		}
		sid = dif[len(dif)-1]
	}
	if uint32(len(sat)) < nsect {
		return errCorruptCompound
	}

	// The short-sector table is the first table sector repeated per count.
	shortLen := uint64(le.Uint32(data[64:])) * (oleSectorSize/4 - 1)
	if shortLen > 0 {
		ssat, ok := sector(le.Uint32(data[60:]))
		if !ok {
			return errCorruptCompound
		}
		for _, next := range ssat[:len(ssat)-1] {
			if next < oleMaxRegSector && uint64(next) >= shortLen {
				return errCorruptCompound
			}
		}
	}

	start, size, found, ok := workbookEntry(data, sat, nsect)
	if !ok {
		return errCorruptCompound
	}
	if found && size < le.Uint32(data[56:]) && uint64(start) >= shortLen && start < oleMaxRegSector {
		return errCorruptCompound
	}
	return nil
}

// workbookEntry walks the directory chain for the "Workbook" (or BIFF5
// "Book") stream and returns its first sector and size. A container without
// one is left for the reader to report.
func workbookEntry(data []byte, sat []uint32, nsect uint32) (start, size uint32, found, ok bool) {
	le := binary.LittleEndian
	for sid, steps := le.Uint32(data[48:]), uint32(0); sid != oleEndOfChain; steps++ {
		if sid >= nsect || steps > nsect {
			return 0, 0, false, false
		}
		off := oleHeaderSize + int(sid)*oleSectorSize
		for e := 0; e < oleSectorSize/oleDirEntrySize; e++ {
			entry := data[min(off+e*oleDirEntrySize, len(data)):min(off+(e+1)*oleDirEntrySize, len(data))]
			if len(entry) < oleDirEntrySize || entry[66] == 0 {
				return start, size, found, true
			}
			switch dirEntryName(entry) {
			case "Workbook", "Book":
				start, size, found = le.Uint32(entry[116:]), le.Uint32(entry[120:]), true
			}
		}
		sid = sat[sid]
	}
	return start, size, found, true
}

func dirEntryName(entry []byte) string {
	n := int(binary.LittleEndian.Uint16(entry[64:]))
	if n < 2 || n > 64 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n-2; i += 2 {
		b.WriteRune(rune(binary.LittleEndian.Uint16(entry[i:])))
	}
	return b.String()
}
