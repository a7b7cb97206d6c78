package compat

// Per-entity field tables, native snake_case on the left, legacy camelCase on
// the right. Single-word fields map to themselves implicitly and are omitted.

var timestamps = map[string]string{
	"created_at": "createdAt",
	"updated_at": "updatedAt",
	"created_by": "createdBy",
	"company_id": "companyId",
}

func withTimestamps(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields)+len(timestamps))
	for k, v := range timestamps {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

var ClientMapping = NewMapping(withTimestamps(map[string]string{
	"registration_no": "registrationNo",
}))

var ProductMapping = NewMapping(withTimestamps(map[string]string{
	"unit_price":    "unitPrice",
	"min_order_qty": "minOrderQty",
}))

var lineItemFields = map[string]string{
	"product_id":   "productId",
	"unit_price":   "unitPrice",
	"line_total":   "lineTotal",
	"line_order":   "lineOrder",
	"quotation_id": "quotationId",
	"invoice_id":   "invoiceId",
}

var documentFields = map[string]string{
	"doc_number":     "docNumber",
	"client_id":      "clientId",
	"client_name":    "clientName",
	"client_email":   "clientEmail",
	"client_company": "clientCompany",
	"client_phone":   "clientPhone",
	"client_address": "clientAddress",
	"sub_total":      "subTotal",
	"vat_amount":     "vatAmount",
	"grand_total":    "grandTotal",
}

func documentMapping(extra map[string]string) *Mapping {
	fields := withTimestamps(documentFields)
	for k, v := range extra {
		fields[k] = v
	}
	return NewMapping(fields).WithChild("items", NewMapping(lineItemFields))
}

var QuotationMapping = documentMapping(map[string]string{
	"quotation_date": "quotationDate",
})

var InvoiceMapping = documentMapping(map[string]string{
	"quotation_id": "quotationId",
	"total_paid":   "totalPaid",
	"invoice_date": "invoiceDate",
	"due_date":     "dueDate",
})

var ReceiptMapping = NewMapping(withTimestamps(map[string]string{
	"doc_number":     "docNumber",
	"invoice_id":     "invoiceId",
	"invoice_number": "invoiceNumber",
	"client_name":    "clientName",
	"payment_date":   "paymentDate",
}))

var StatementMapping = NewMapping(withTimestamps(map[string]string{
	"doc_number":      "docNumber",
	"client_id":       "clientId",
	"client_name":     "clientName",
	"client_email":    "clientEmail",
	"period_start":    "periodStart",
	"period_end":      "periodEnd",
	"total_invoiced":  "totalInvoiced",
	"total_paid":      "totalPaid",
	"closing_balance": "closingBalance",
})).WithChild("lines", NewMapping(map[string]string{
	"statement_id":   "statementId",
	"invoice_id":     "invoiceId",
	"invoice_number": "invoiceNumber",
	"invoice_date":   "invoiceDate",
	"due_date":       "dueDate",
	"grand_total":    "grandTotal",
	"total_paid":     "totalPaid",
}))
