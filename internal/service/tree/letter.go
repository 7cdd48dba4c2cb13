package tree

// LetterIndex labels a 0-based assignment index spreadsheet style:
// 0 -> "a", 25 -> "z", 26 -> "aa", 701 -> "zz", 702 -> "aaa".
// Every caller that shows an assignment label must go through here.
func LetterIndex(i int) string {
	if i < 0 {
		return ""
	}
	var buf [16]byte
	n := len(buf)
	for {
		n--
		buf[n] = byte('a' + i%26)
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return string(buf[n:])
}
