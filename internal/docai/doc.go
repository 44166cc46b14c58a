// Package docai is a client for the document AI REST API.
//
// Every analysis is an asynchronous request on an uploaded file: create it,
// poll it with a Poller until it finishes, then download its output.
//
//	c, _ := docai.NewClient(docai.RegionURL("us"), token)
//	f, _ := c.CreateFile(ctx, "lease.pdf", content)
//	reqs, _ := c.CreateOCR(ctx, []string{f.ID})
//	p := &docai.Poller{Client: c}
//	if _, err := p.Wait(ctx, reqs, nil); err != nil { ... }
//	layouts, _ := c.OCRLayouts(ctx, reqs[0].ID)
//
// Results collects the outcomes of many requests per file for reporting.
package docai
