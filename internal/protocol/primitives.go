package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteInt writes v as a 4-byte big-endian integer.
func WriteInt(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadInt reads a 4-byte big-endian integer.
func ReadInt(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteUTF writes s as its UTF-8 byte length followed by the bytes themselves.
func WriteUTF(w io.Writer, s string) error {
	if err := WriteInt(w, int32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadUTF reads a string written by WriteUTF.
func ReadUTF(r io.Reader) (string, error) {
	size, err := ReadInt(r)
	if err != nil {
		return "", err
	}
	return readBlob(r, size)
}

// WriteBool writes b as a single byte.
func WriteBool(w io.Writer, b bool) error {
	var v byte
	if b {
		v = 1
	}
	_, err := w.Write([]byte{v})
	return err
}

// ReadBool reads a single byte; anything but zero is true.
func ReadBool(r io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

// readBlob reads exactly size bytes. The buffer grows with the data actually
// received so a corrupt length cannot force a huge allocation up front.
func readBlob(r io.Reader, size int32) (string, error) {
	if size < 0 {
		return "", fmt.Errorf("negative length %d", size)
	}
	if size == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, int64(size))
	if err != nil {
		if err == io.EOF && n < int64(size) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return buf.String(), nil
}
