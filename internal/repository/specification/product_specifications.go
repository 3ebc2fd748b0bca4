package specification

import "gorm.io/gorm"

type BySupplierProductID struct {
	SupplierProductID string
}

func (s BySupplierProductID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("supplier_product_id = ?", s.SupplierProductID)
}
