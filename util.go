package bolt

import "fmt"

// sprintByteHex returns a formatted string of the byte array in
// hexadecimal with a nicely formatted human-readable output
func sprintByteHex(b []byte) string {
	output := "\t"
	for i, b := range b {
		output += fmt.Sprintf("%02x", b)
		switch {
		case (i+1)%16 == 0:
			output += "\n\t"
		case (i+1)%4 == 0:
			output += " "
		}
	}
	output += "\n"

	return output
}
