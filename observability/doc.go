// Package observability provides OpenTelemetry tracing and metrics for
// pipeline terminal operations.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("seqkit")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("seqkit")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//
// Terminals:
//
//	ctx, term := observability.StartTerminal(ctx, nil, metrics, id, "", "collect", 3)
//	status := term.End(ctx, n, err)
package observability
