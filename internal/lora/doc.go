// Package lora holds the LoRA reference shape shared by every extraction
// path, together with the name cleaning and de-duplication rules applied
// wherever a LoRA name is captured.
package lora
