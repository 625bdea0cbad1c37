// Command dwarflint is a pedantic structural validator for the DWARF
// 2/3 debug sections of an ELF object file.
package main

import "github.com/go-dwarf/dwarflint/cmd"

func main() {
	cmd.Execute()
}
