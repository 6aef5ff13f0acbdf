// Public domain.

// Ptfit fits a spin-down timing model to synthetic pulse arrival times.
package main

import "github.com/LuluAgazie/PINT/internal/ptprog"

func main() {
	ptprog.Main()
}
