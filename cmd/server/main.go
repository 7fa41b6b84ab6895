package main

import (
	"fmt"
	"os"

	_ "realestate-crm/docs" // Swagger docs
)

// @title Real Estate CRM API
// @version 1.0
// @description Role-based CRM for real-estate offices: clients, properties, transactions, documents, reports and accounting.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
