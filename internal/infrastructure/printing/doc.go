// Package printing turns invoices into PDF documents.
//
// The invoice is rendered to HTML with html/template, printed to PDF by a
// headless Chrome driven through the DevTools protocol (chromedp) and handed
// to a storage.DocumentStore. InvoiceDocumentGenerator ties the three together
// and implements billing.DocumentGenerator.
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	generator := NewInvoiceDocumentGenerator(renderer, store, WithPaperSize(PaperSizeA4))
//	locator, err := generator.Generate(ctx, resolved)
package printing
