package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-zatca-client/png"
	"github.com/alapierre/go-zatca-client/zatca"
	"github.com/alapierre/go-zatca-client/zatca/model"
	"github.com/alapierre/go-zatca-client/zatca/util"
)

func main() {

	if util.DebugEnabled() {
		logrus.SetLevel(logrus.DebugLevel)
	}

	invoice := &model.Invoice{
		ID:       "INV-2024-0001",
		UUID:     uuid.NewString(),
		IssuedAt: time.Now(),
		Type:     model.Simplified,
		Currency: "SAR",
		Supplier: model.Party{
			Name:        "Najd Trading Est.",
			VATNumber:   "311111111101113",
			CRNumber:    "1010101010",
			Street:      "King Fahd Road",
			City:        "Riyadh",
			PostalCode:  "12211",
			CountryCode: "SA",
		},
		Customer: model.Party{
			Name: "Walk-in customer",
		},
		Lines: []model.InvoiceLine{
			{
				Description: "Office chair",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(450),
				VATRate:     decimal.NewFromInt(15),
			},
			{
				Description:  "Delivery",
				Quantity:     decimal.NewFromInt(1),
				UnitPrice:    decimal.NewFromInt(50),
				VATRate:      decimal.NewFromInt(15),
				Discount:     decimal.NewFromInt(10),
				DiscountKind: model.DiscountPercent,
			},
		},
	}

	generator := zatca.New(zatca.DefaultConfig())

	res, err := generator.Generate(invoice)
	if err != nil {
		panic(err)
	}

	fmt.Println(res.XML)
	fmt.Println(res.QRPayload)
	fmt.Printf("valid: %v errors: %v warnings: %v\n",
		res.Validation.IsValid(), res.Validation.Errors, res.Validation.Warnings)

	image, err := png.Qr(res.QRPayload)
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile("invoice-qr.png", image, 0644); err != nil {
		panic(err)
	}
}
