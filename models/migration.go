package models

import (
	"log"

	"bitbucket.org/truebittech/retail_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{}, &User{}, &Registration{}, &LoginSettings{},
		&Category{}, &Tax{}, &Unit{}, &PrinterConfig{},
		&Customer{}, &PrivilegeCard{},
		&Product{}, &StockMovement{},
		&Supplier{}, &SupplierTransaction{},
		&Purchase{}, &PurchaseItem{},
		&Sale{}, &SaleItem{},
		&DocumentSequence{},
		&Report{}, &NotificationOutbox{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
