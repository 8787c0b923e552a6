package store

import (
	"encoding/binary"
	"runtime"
)

// CacheFormatVersion is bumped whenever the on-disk JSON shape of a cached
// value changes in an incompatible way.
const CacheFormatVersion = 1

// cacheMagic is the fixed two-byte tag every cache blob starts with.
var cacheMagic = [2]byte{'b', 'g'}

// Header is the fixed-size preamble written before every compressed cache
// blob: a two-byte tag, the cache format version, and a runtime-version
// stamp. A load only succeeds when all three match the running binary,
// matching the "same environment, same format" contract the store exists
// to enforce.
type Header struct {
	FormatVersion  uint16
	RuntimeVersion uint16
}

// headerSize is the encoded size in bytes: 2 (magic) + 2 (format) + 2 (runtime).
const headerSize = 6

// currentHeader returns the header this running binary would write.
func currentHeader() Header {
	return Header{
		FormatVersion:  CacheFormatVersion,
		RuntimeVersion: runtimeVersionCode(),
	}
}

// runtimeVersionCode encodes the Go runtime version into a short integer
// so caches written by an incompatible toolchain are rejected, the same
// way the original store gates on a language major/minor pair.
func runtimeVersionCode() uint16 {
	var major, minor uint16
	_, err := fmtSscanVersion(runtime.Version(), &major, &minor)
	if err != nil {
		return 0
	}
	return (major << 8) | (minor & 0xff)
}

// fmtSscanVersion parses "go1.24.11"-shaped strings without pulling in
// strconv/fmt edge cases for the rarer version formats (devel builds).
func fmtSscanVersion(v string, major, minor *uint16) (int, error) {
	// Skip leading "go".
	i := 0
	for i < len(v) && (v[i] < '0' || v[i] > '9') {
		i++
	}
	n, rest := scanUint(v[i:])
	*major = n
	if len(rest) > 0 && rest[0] == '.' {
		n2, _ := scanUint(rest[1:])
		*minor = n2
	}
	return 2, nil
}

func scanUint(s string) (uint16, string) {
	var n uint16
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + uint16(s[i]-'0')
		i++
	}
	return n, s[i:]
}

// prependHeader returns data with the version header prepended.
func prependHeader(data []byte) []byte {
	h := currentHeader()
	out := make([]byte, 0, headerSize+len(data))
	out = append(out, cacheMagic[0], cacheMagic[1])
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], h.FormatVersion)
	out = append(out, buf[:]...)
	binary.BigEndian.PutUint16(buf[:], h.RuntimeVersion)
	out = append(out, buf[:]...)
	return append(out, data...)
}

// validateHeader checks the leading bytes of data against the header this
// binary would write and returns the remaining payload on success.
func validateHeader(data []byte) (payload []byte, ok bool) {
	if len(data) < headerSize {
		return nil, false
	}
	if data[0] != cacheMagic[0] || data[1] != cacheMagic[1] {
		return nil, false
	}
	got := currentHeader()
	format := binary.BigEndian.Uint16(data[2:4])
	runtimeVer := binary.BigEndian.Uint16(data[4:6])
	if format != got.FormatVersion || runtimeVer != got.RuntimeVersion {
		return nil, false
	}
	return data[headerSize:], true
}
