package wire

// putFixedString writes s into dst (which must be exactly len(dst) bytes),
// truncating s if it's too long and null-padding if it's shorter, per
// spec.md §4.1 "fixed-width null-padded UTF-8 strings".
func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// getFixedString reads a null-padded fixed-width string field, trimming the
// trailing NUL padding.
func getFixedString(src []byte) string {
	end := len(src)
	for end > 0 && src[end-1] == 0 {
		end--
	}
	return string(src[:end])
}
