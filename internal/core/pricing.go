package core

import "fmt"

// PriceOrder fills ProductsTotal, DiscountedTotal and Total from the order
// lines, the order discount and its delivery fee.
//
// A line with precio_personalizado uses that unit price; otherwise the
// catalog price less the product discount applies. Lines referencing a
// product missing from the catalog fail unless they carry a custom price.
func PriceOrder(o *Order, catalog map[ProductRef]Product) error {
	var products Money
	for _, l := range o.Lines {
		var unit Money
		switch {
		case l.CustomPrice != nil:
			unit = *l.CustomPrice
		default:
			p, ok := catalog[l.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProduct, l.ProductID)
			}
			unit = p.SalePrice()
		}
		products = products.Add(unit.MulInt(l.Qty()))
	}

	o.ProductsTotal = products
	o.DiscountedTotal = products.LessPercent(decimalFromFloat(o.DiscountPercent))
	o.Total = o.DiscountedTotal.Add(o.DeliveryFee)
	return nil
}

// CatalogIndex keys products by the reference form used in order lines.
func CatalogIndex(products []Product) map[ProductRef]Product {
	idx := make(map[ProductRef]Product, len(products))
	for _, p := range products {
		idx[ProductRefOf(p.ID)] = p
	}
	return idx
}

func ProductRefOf(id int64) ProductRef {
	return ProductRef(fmt.Sprintf("%d", id))
}
