package printing

// invoiceTemplate is the built-in A4 invoice layout
const invoiceTemplate = `<!DOCTYPE html>
<html lang="ro">
<head>
<meta charset="UTF-8">
<title>{{.Title}} {{.Number}}</title>
<style>
  body { font-family: "DejaVu Sans", Arial, sans-serif; font-size: 10pt; color: #222; }
  h1 { font-size: 18pt; margin: 0 0 4mm 0; }
  .parties { display: flex; justify-content: space-between; margin-bottom: 6mm; }
  .party { width: 48%; }
  .party h2 { font-size: 9pt; text-transform: uppercase; color: #666; margin: 0 0 1mm 0; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border-bottom: 1px solid #ddd; padding: 1.5mm 1mm; }
  th { background: #f3f3f3; text-align: left; font-size: 9pt; }
  td.num, th.num { text-align: right; white-space: nowrap; }
  .totals { width: 45%; margin-left: auto; margin-top: 4mm; }
  .totals td { border: none; }
  .grand td { font-weight: bold; font-size: 12pt; border-top: 2px solid #222; }
  .cancelled { color: #b00; font-weight: bold; font-size: 14pt; }
  .notes { margin-top: 6mm; font-size: 9pt; }
</style>
</head>
<body>
<h1>{{.Title}}{{if .Number}} nr. {{.Number}}{{end}}</h1>
{{if .Cancelled}}<p class="cancelled">ANULATĂ</p>{{end}}
<p>
  Data emiterii: {{formatDate .IssueDate}}
  {{if .DueDate}}<br>Scadența: {{formatDate .DueDate}}{{end}}
  {{if .DeliveryDate}}<br>Data livrării: {{formatDate .DeliveryDate}}{{end}}
</p>

<div class="parties">
  <div class="party">
    <h2>Furnizor</h2>
    <strong>{{.Company.Name}}</strong><br>
    CIF: {{.Company.CIF}}<br>
    {{if .Company.RegCom}}Reg. Com.: {{.Company.RegCom}}<br>{{end}}
    {{if .Company.Address}}{{.Company.Address}}{{if .Company.City}}, {{.Company.City}}{{end}}{{if .Company.County}}, jud. {{.Company.County}}{{end}}<br>{{end}}
    {{if .Company.IBAN}}IBAN: {{.Company.IBAN}}{{if .Company.Bank}} ({{.Company.Bank}}){{end}}{{end}}
  </div>
  <div class="party">
    <h2>Client</h2>
    <strong>{{.Client.Name}}</strong><br>
    {{if .Client.CIF}}CIF: {{.Client.CIF}}<br>{{end}}
    {{if .Client.CNP}}CNP: {{.Client.CNP}}<br>{{end}}
    {{if .Client.RegCom}}Reg. Com.: {{.Client.RegCom}}<br>{{end}}
    {{if .Client.Address}}{{.Client.Address}}{{if .Client.City}}, {{.Client.City}}{{end}}{{if .Client.County}}, jud. {{.Client.County}}{{end}}{{end}}
  </div>
</div>

<table>
  <thead>
    <tr>
      <th>Nr.</th>
      <th>Denumire</th>
      <th>U.M.</th>
      <th class="num">Cant.</th>
      <th class="num">Preț unitar</th>
      <th class="num">Valoare</th>
      <th class="num">TVA</th>
      <th class="num">Valoare TVA</th>
    </tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr>
      <td>{{.Index}}</td>
      <td>{{.Description}}</td>
      <td>{{.Unit}}</td>
      <td class="num">{{formatQuantity .Quantity}}</td>
      <td class="num">{{formatMoney .UnitPrice}}</td>
      <td class="num">{{formatMoney .LineTotal}}</td>
      <td class="num">{{default .VATLabel "-"}}</td>
      <td class="num">{{formatMoney .VATAmount}}</td>
    </tr>
  {{end}}
  </tbody>
</table>

<table class="totals">
  <tr><td>Total fără TVA</td><td class="num">{{formatMoney .Subtotal}} {{.Currency}}</td></tr>
  {{range .VAT}}
  <tr><td>TVA {{formatPercent .Percent}} (bază {{formatMoney .Base}})</td><td class="num">{{formatMoney .Amount}} {{$.Currency}}</td></tr>
  {{end}}
  <tr class="grand"><td>Total de plată</td><td class="num">{{formatMoney .Total}} {{.Currency}}</td></tr>
</table>

<div class="notes">
  {{if .PaymentMethod}}Modalitate de plată: {{.PaymentMethod}}{{if .PaymentReference}} ({{.PaymentReference}}){{end}}<br>{{end}}
  {{if .Notes}}{{.Notes}}{{end}}
</div>
</body>
</html>
`

const invoiceFooter = `<div style="font-size:8pt;width:100%;text-align:center;color:#888;">` +
	`Pagina <span class="pageNumber"></span> din <span class="totalPages"></span></div>`
