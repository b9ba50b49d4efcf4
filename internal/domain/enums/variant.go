package enums

type Variant string

const (
	VariantPreview  Variant = "preview"
	VariantOriginal Variant = "original"
)

func (v Variant) Valid() bool {
	return v == VariantPreview || v == VariantOriginal
}
