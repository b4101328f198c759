package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/edidgate/internal/common"
	"example.com/edidgate/internal/crypto"
	"example.com/edidgate/internal/dict"
	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/manifest"
	"example.com/edidgate/internal/report"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "decode":
		decodeCmd(os.Args[2:])
	case "validate":
		os.Exit(validateCmd(os.Args[2:]))
	case "report":
		reportCmd(os.Args[2:])
	case "batch":
		os.Exit(batchCmd(os.Args[2:]))
	case "manifest":
		manifestCmd(os.Args[2:])
	case "verify-signature":
		verifySignatureCmd(os.Args[2:])
	case "version":
		fmt.Printf("edidctl %s (built %s)\n", version, buildDate)
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`edidctl %s (built %s) <command> [options]

Commands:
  decode    --in <file> [--json] [--lang <en|tr>] [--dict <dict.json>] [--out <file>]
  validate  --in <file> [--out <findings.ndjson>] [--conformance <conformance.json>] [--strict] [--metrics]
  report    (--in <file> | --conformance <conformance.json>) [--text <file|->] [--pdf <file>] [--qr <file.png>] [--lang <en|tr>] [--dict <dict.json>]
  batch     --in <dir> --out-dir <dir> [--concurrency <n>] [--strict] [--lang <en|tr>] [--dict <dict.json>] [--metrics] [--progress]
  manifest  (--inputs <comma-separated> | --dir <dir>) --out <manifest.json> [--sign --key <key.pem> --cert <cert.pem> [--jws-out <file>]]
  verify-signature --manifest <manifest.json> --jws <signature.jws> --cert <cert.pem>
  version

validate and batch exit 0 when every image is conformant, 1 when only
warnings were found and --strict is set, 2 on failures and 3 on
operational errors.
`, version, buildDate)
}

func loadVendors(path string) *dict.Store {
	store, err := dict.WithOverrides(path)
	if err != nil {
		fmt.Println("dictionary:", err)
		os.Exit(1)
	}
	return store
}

func mustTranslator(lang string) report.Translator {
	l, err := report.ParseLanguage(lang)
	if err != nil {
		fmt.Println("language:", err)
		os.Exit(1)
	}
	return report.NewTranslator(l)
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "input EDID image (.bin, .edid or hex dump, - for stdin)")
	lang := fs.String("lang", "", "report language (en, tr)")
	dictPath := fs.String("dict", "", "vendor dictionary JSON overlaying the built-in tables")
	asJSON := fs.Bool("json", false, "emit the conformance report as JSON")
	out := fs.String("out", "", "write output to file instead of stdout")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	e, err := edid.DecodeFile(*in)
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Println("create output:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if *asJSON {
		if err := writeModelJSON(w, e); err != nil {
			fmt.Println("write json:", err)
			os.Exit(1)
		}
		return
	}
	vendors := loadVendors(*dictPath)
	tr := mustTranslator(*lang)
	if err := report.WriteText(w, e, vendors, tr); err != nil {
		fmt.Println("render:", err)
		os.Exit(1)
	}
}

func writeModelJSON(w io.Writer, e *edid.EDID) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

func validateCmd(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "input EDID image")
	outDiag := fs.String("out", "findings.ndjson", "findings output (NDJSON)")
	outConf := fs.String("conformance", "conformance.json", "conformance report output")
	strict := fs.Bool("strict", false, "exit 1 when only warnings were found")
	metricsFlag := fs.Bool("metrics", false, "print decode metrics")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		return 3
	}
	var metrics *common.Metrics
	if *metricsFlag {
		metrics = common.NewMetrics()
		metrics.Start()
	}
	e, err := edid.DecodeFile(*in)
	if err != nil {
		fmt.Println("decode:", err)
		return 3
	}
	if metrics != nil {
		metrics.AddFile(int64(len(e.Raw)), len(e.Blocks))
		metrics.AddFindings(e.Report.Summary.Failures, e.Report.Summary.Warnings)
		metrics.Stop()
	}
	if err := e.Ledger.WriteFindingsNDJSON(*outDiag); err != nil {
		fmt.Println("write findings:", err)
		return 3
	}
	if err := report.SaveConformanceJSON(e, *outConf); err != nil {
		fmt.Println("write conformance:", err)
		return 3
	}
	sum := e.Report.Summary
	fmt.Printf("CONFORMANT=%v, failures=%d, warnings=%d, findings=%d\n",
		sum.Conformant, sum.Failures, sum.Warnings, sum.Total)
	if metrics != nil {
		snap := metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s blocks=%d processed=%s\n",
			snap.Duration.Round(time.Millisecond), snap.Blocks, common.FormatBytes(snap.Bytes))
	}
	switch {
	case sum.Failures > 0:
		return 2
	case sum.Warnings > 0 && *strict:
		return 1
	}
	return 0
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	in := fs.String("in", "", "EDID image to decode")
	confPath := fs.String("conformance", "", "previously saved conformance JSON")
	textPath := fs.String("text", "", "output text report, - for stdout")
	pdfPath := fs.String("pdf", "", "output conformance PDF")
	qrPath := fs.String("qr", "", "output digest QR code (PNG)")
	lang := fs.String("lang", "", "report language (en, tr)")
	dictPath := fs.String("dict", "", "vendor dictionary JSON overlaying the built-in tables")
	fs.Parse(args)

	if (*in == "") == (*confPath == "") {
		fmt.Println("exactly one of --in or --conformance is required")
		os.Exit(1)
	}
	if *textPath == "" && *pdfPath == "" && *qrPath == "" {
		fmt.Println("nothing to do: pass --text, --pdf or --qr")
		os.Exit(1)
	}

	var e *edid.EDID
	var err error
	if *in != "" {
		e, err = edid.DecodeFile(*in)
		if err != nil {
			fmt.Println("decode:", err)
			os.Exit(1)
		}
	} else {
		e, err = report.LoadConformanceJSON(*confPath)
		if err != nil {
			fmt.Println("load conformance:", err)
			os.Exit(1)
		}
	}
	vendors := loadVendors(*dictPath)
	tr := mustTranslator(*lang)

	if *textPath != "" {
		var w io.Writer = os.Stdout
		if *textPath != "-" {
			f, err := os.Create(*textPath)
			if err != nil {
				fmt.Println("create text report:", err)
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err := report.WriteText(w, e, vendors, tr); err != nil {
			fmt.Println("render text:", err)
			os.Exit(1)
		}
		if *textPath != "-" {
			fmt.Println("Wrote text report:", *textPath)
		}
	}
	if *pdfPath != "" {
		if err := report.SaveConformancePDF(e, *pdfPath, vendors, tr); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote PDF:", *pdfPath)
	}
	if *qrPath != "" {
		if len(e.Raw) == 0 {
			fmt.Println("--qr needs the raw image bytes; pass --in instead of --conformance")
			os.Exit(1)
		}
		png, err := report.DigestQR(common.Sha256OfBytes(e.Raw), 256)
		if err != nil {
			fmt.Println("render qr:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*qrPath, png, 0o644); err != nil {
			fmt.Println("write qr:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote QR:", *qrPath)
	}
}

type batchResult struct {
	source     string
	conformant bool
	failures   int
	warnings   int
	err        error
}

func batchCmd(args []string) int {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	inDir := fs.String("in", ".", "directory scanned for EDID images")
	outDir := fs.String("out-dir", "out", "results directory")
	concurrency := fs.Int("concurrency", runtime.NumCPU(), "maximum concurrent decodes")
	strict := fs.Bool("strict", false, "treat warning-only images as not passing the gate")
	lang := fs.String("lang", "", "report language for text reports (en, tr)")
	dictPath := fs.String("dict", "", "vendor dictionary JSON overlaying the built-in tables")
	metricsFlag := fs.Bool("metrics", false, "print batch throughput metrics")
	progressFlag := fs.Bool("progress", false, "display progress updates")
	fs.Parse(args)

	inputs, err := collectInputs(*inDir)
	if err != nil {
		fmt.Println("scan inputs:", err)
		return 3
	}
	if len(inputs) == 0 {
		fmt.Println("no EDID images found under", *inDir)
		return 3
	}
	vendors := loadVendors(*dictPath)
	tr := mustTranslator(*lang)

	// Output directories are named after the input stem; a second file
	// with the same stem gets a numeric suffix.
	used := make(map[string]int)
	dirs := make([]string, len(inputs))
	for i, p := range inputs {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		n := used[stem]
		used[stem] = n + 1
		if n > 0 {
			stem = fmt.Sprintf("%s-%d", stem, n)
		}
		dirs[i] = filepath.Join(*outDir, stem)
	}

	metrics := common.NewMetrics()
	metrics.SetTotalFiles(int64(len(inputs)))
	metrics.Start()
	var stopProgress func()
	if *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}

	workers := *concurrency
	if workers <= 0 {
		workers = 1
	}
	results := make([]batchResult, len(inputs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, p := range inputs {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = processBatchInput(path, dirs[i], vendors, tr, metrics)
		}(i, p)
	}
	wg.Wait()
	if stopProgress != nil {
		stopProgress()
	}
	metrics.Stop()

	var conformant, failed, warned, broken int
	var failures, warnings int
	for _, res := range results {
		switch {
		case res.err != nil:
			broken++
			fmt.Printf("%s: %v\n", res.source, res.err)
		case !res.conformant:
			failed++
		case res.warnings > 0:
			warned++
		default:
			conformant++
		}
		failures += res.failures
		warnings += res.warnings
	}
	fmt.Printf("Batch: %d images, conformant=%d, failing=%d, warning-only=%d, unreadable=%d\n",
		len(inputs), conformant, failed, warned, broken)
	fmt.Printf("Findings: failures=%d, warnings=%d\n", failures, warnings)
	if *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s files=%d blocks=%d processed=%s (%.1f files/s)\n",
			snap.Duration.Round(10*time.Millisecond),
			snap.Files,
			snap.Blocks,
			common.FormatBytes(snap.Bytes),
			snap.FilesPerSecond(),
		)
	}
	switch {
	case broken > 0:
		return 3
	case failed > 0:
		return 2
	case warned > 0 && *strict:
		return 1
	}
	return 0
}

func processBatchInput(path, outDir string, vendors *dict.Store, tr report.Translator, metrics *common.Metrics) batchResult {
	res := batchResult{source: path}
	e, err := edid.DecodeFile(path)
	if err != nil {
		res.err = err
		return res
	}
	metrics.AddFile(int64(len(e.Raw)), len(e.Blocks))
	metrics.AddFindings(e.Report.Summary.Failures, e.Report.Summary.Warnings)
	res.conformant = e.Conformant
	res.failures = e.Report.Summary.Failures
	res.warnings = e.Report.Summary.Warnings

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		res.err = err
		return res
	}
	if err := e.Ledger.WriteFindingsNDJSON(filepath.Join(outDir, "findings.ndjson")); err != nil {
		res.err = err
		return res
	}
	if err := report.SaveConformanceJSON(e, filepath.Join(outDir, "conformance.json")); err != nil {
		res.err = err
		return res
	}
	f, err := os.Create(filepath.Join(outDir, "report.txt"))
	if err != nil {
		res.err = err
		return res
	}
	err = report.WriteText(f, e, vendors, tr)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		res.err = err
	}
	return res
}

// collectInputs walks dir for EDID images, recognized by extension.
func collectInputs(dir string) ([]string, error) {
	var inputs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".bin", ".edid", ".hex":
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(inputs)
	return inputs, nil
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	dir := fs.String("dir", "", "manifest every regular file under this directory")
	out := fs.String("out", "manifest.json", "output json")
	sign := fs.Bool("sign", false, "sign manifest (detached JWS over the saved file)")
	keyPath := fs.String("key", "", "PEM RSA private key for signing (requires --sign)")
	certPath := fs.String("cert", "", "PEM certificate naming the signer (requires --sign)")
	jwsOut := fs.String("jws-out", "", "output JWS file (defaults to manifest path with .jws)")
	fs.Parse(args)

	if (*inputs == "") == (*dir == "") {
		fmt.Println("exactly one of --inputs or --dir is required")
		os.Exit(1)
	}

	var m manifest.Manifest
	var err error
	if *dir != "" {
		m, err = manifest.BuildDir(*dir)
	} else {
		var paths []string
		for _, p := range strings.Split(*inputs, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			paths = append(paths, p)
		}
		if len(paths) == 0 {
			fmt.Println("no input paths specified")
			os.Exit(1)
		}
		m, err = manifest.Build(paths)
	}
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}

	if !*sign {
		if err := manifest.Save(m, *out); err != nil {
			fmt.Println("manifest save:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *out)
		return
	}

	if *keyPath == "" || *certPath == "" {
		fmt.Println("--sign requires --key and --cert")
		os.Exit(1)
	}
	certBytes, err := os.ReadFile(*certPath)
	if err != nil {
		fmt.Println("read cert:", err)
		os.Exit(1)
	}
	signer, err := crypto.SignerName(certBytes)
	if err != nil {
		fmt.Println("parse cert:", err)
		os.Exit(1)
	}

	sigPath := *jwsOut
	if sigPath == "" {
		base := *out
		ext := filepath.Ext(base)
		if ext != "" {
			sigPath = base[:len(base)-len(ext)] + ".jws"
		} else {
			sigPath = base + ".jws"
		}
	}

	m.Signature = &manifest.Signature{
		Algorithm: "RS256",
		Signer:    signer,
		SignedAt:  time.Now().UTC(),
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Println("manifest save:", err)
		os.Exit(1)
	}
	if err := manifest.SignFile(*out, *keyPath, sigPath); err != nil {
		fmt.Println("manifest sign:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
	fmt.Println("Wrote signature", sigPath)
}

func verifySignatureCmd(args []string) {
	fs := flag.NewFlagSet("verify-signature", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "manifest JSON file")
	jwsPath := fs.String("jws", "", "manifest JWS signature file")
	certPath := fs.String("cert", "", "signer certificate (PEM)")
	fs.Parse(args)

	if *manifestPath == "" || *jwsPath == "" || *certPath == "" {
		fmt.Println("required: --manifest, --jws, --cert")
		os.Exit(1)
	}
	if err := manifest.VerifyFile(*manifestPath, *jwsPath, *certPath); err != nil {
		fmt.Println("verify signature:", err)
		os.Exit(1)
	}
	fmt.Println("Signature OK")
}
