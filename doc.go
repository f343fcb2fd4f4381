// Package doccrop removes a fixed margin from every page of PDF and
// word-processor documents.
//
// # Quick Start
//
// Build a gateway for non-PDF inputs, a pipeline, and a scheduler:
//
//	gw, err := doccrop.NewGateway()
//	if err != nil {
//	    log.Fatal(err) // only when native automation is required and missing
//	}
//	sched := doccrop.NewScheduler(doccrop.NewPipeline(gw))
//
//	m, _ := doccrop.NewMarginSpec(10, 10, 15, 15) // top, bottom, left, right in mm
//	sched.AddJob("report.pdf", m, "out", doccrop.DefaultSuffix)
//	sched.AddJob("letter.docx", m, "out", doccrop.DefaultSuffix)
//
//	summary := sched.Run(ctx)
//	fmt.Printf("%d ok, %d failed\n", summary.Successful, summary.Failed)
//
// # Cropping
//
// Cropping rewrites each page's MediaBox and CropBox with pdfcpu. Content
// streams are left untouched, so vector content stays vector and embedded
// images keep their pixels. All pages are measured before anything is written;
// if any page would collapse, the crop fails with *CropGeometryError and no
// output exists. Margins follow the page as displayed, including /Rotate.
//
// # Conversion
//
// .docx inputs are converted to PDF first, .doc inputs go through .docx. The
// Gateway tries native Word automation (Windows only, probed once) and falls
// back to headless LibreOffice. A zero exit status is not trusted: the output
// file must exist and be non-empty.
//
// # Scheduling
//
// Jobs run on at most MaxWorkers goroutines. Each job gets its own temporary
// directory, removed on every exit path, and its failures become a failed
// CropOutcome instead of stopping the batch. Cancel stops dispatch; jobs that
// already started finish and are reported.
//
// # Errors
//
// Match error categories with errors.Is against the sentinels in errors.go
// (ErrValidation, ErrUnsupportedFormat, ErrConverterUnavailable,
// ErrConversion, ErrCropGeometry, ErrIO) or extract details with errors.As.
package doccrop
