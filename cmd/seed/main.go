// seed genera el script SQL con los catálogos base de seguridad (alcances, módulos,
// permisos y roles de sistema) y, opcionalmente, tenants desde CSV y un usuario administrador.
//
// Uso:
//
//	go run ./cmd/seed -out seed.sql [-tenants tenants.csv -latin1] [-admin-password X -admin-tenant HO]
//
// El CSV de tenants lleva columnas tenant_code,tenant_name,tenant_type[,region_code,location];
// con -latin1 se decodifica desde ISO-8859-1.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	outPath := flag.String("out", "", "archivo de salida (vacío = stdout)")
	tenantsPath := flag.String("tenants", "", "CSV de tenants")
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	adminPassword := flag.String("admin-password", "", "crea el usuario admin con esta contraseña")
	adminTenant := flag.String("admin-tenant", "", "código del tenant del admin")
	flag.Parse()

	opts := Options{Latin1: *latin1, AdminPassword: *adminPassword, AdminTenant: *adminTenant}
	if *tenantsPath != "" {
		f, err := os.Open(*tenantsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		opts.Tenants = f
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := Generate(out, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Generar script: %v\n", err)
		os.Exit(1)
	}
	if *outPath != "" {
		fmt.Printf("Generado %s\n", *outPath)
	}
}
