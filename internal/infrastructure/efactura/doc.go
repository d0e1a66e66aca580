// Package efactura is the client for the national e-invoicing service
// (RO e-Factura) and the public VAT-payer registry.
//
// Uploads and status queries authenticate with the tenant's PKCS#12 client
// certificate over mutual TLS. Invoices are sent as UBL 2.1 XML.
package efactura
