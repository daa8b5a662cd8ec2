package bulk

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"zeendr/internal/core"
)

// WriteOrdersTemplate writes the order upload template with one example row.
func WriteOrdersTemplate(w io.Writer) error {
	return writeSheet(w, "Pedidos", OrderColumns, [][]any{
		{"Cliente Ejemplo", "3001234567", "Calle 1 # 2-3", "Chapinero", "Efectivo", "2024-10-18T14:30", "1,2", "2,1", "1000,2000", 5000},
	})
}

// WriteExpensesTemplate writes the expense upload template with one
// example row for establishment.
func WriteExpensesTemplate(w io.Writer, establishment string) error {
	if establishment == "" {
		establishment = "Establecimiento Ejemplo"
	}
	return writeSheet(w, "Gastos", ExpenseColumns, [][]any{
		{"Operativo", "Descripción de ejemplo", 100.50, "2024-10-18", establishment},
	})
}

// WriteProductList writes the product ids and names used to fill
// ids_productos.
func WriteProductList(w io.Writer, products []core.Product) error {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = []any{p.ID, p.Name}
	}
	return writeSheet(w, "Productos", []string{"ID", "Nombre del Producto"}, rows)
}

func writeSheet(w io.Writer, name string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(name, addr, &r); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
