package issue

// loadBuiltinIssues populates r with the engine's closed set of known
// issues, ground on gst-validate-report.c's gst_validate_report_load_issues.
// Summaries are kept verbatim where practical: scenario test suites match
// on them, so they must not drift casually (the original source carries
// the same warning).
func loadBuiltinIssues(r *Registry) {
	reg := func(area, name string, sev Severity, summary, desc string) {
		r.MustRegister(area, name, summary, desc, sev)
	}

	const buffer = "buffer"
	reg(buffer, "before-segment", Warning,
		"buffer was received before a segment",
		"in push mode, a segment event must be received before a buffer")
	reg(buffer, "is-out-of-segment", Issue,
		"buffer is out of the segment range",
		"buffer being pushed is out of the current segment's start-stop range, "+
			"meaning it is going to be discarded downstream without any use")
	reg(buffer, "timestamp-out-of-received-range", Warning,
		"buffer timestamp is out of the received buffer timestamps' range",
		"a buffer leaving an element should have its timestamps in the range "+
			"of the received buffers' timestamps")
	reg(buffer, "wrong-buffer", Warning,
		"received buffer does not correspond to the wanted one",
		"when checking playback of a file against a media descriptor, buffers "+
			"coming into the decoders should have the expected metadata and hash")
	reg(buffer, "wrong-flow-return", Critical,
		"flow return from pad push doesn't match expected value",
		"flow return from a 1:1 sink/src pad element should mirror what "+
			"downstream returned")
	reg(buffer, "after-eos", Issue,
		"buffer was received after EOS",
		"a pad shouldn't receive any more buffers after it gets EOS")
	reg(buffer, "flow-error-without-error-message", Warning,
		"a flow error was returned without posting an ERROR on the bus", "")
	reg(buffer, "missing-discont", Warning,
		"buffer didn't have the expected DISCONT flag",
		"buffers after SEGMENT and FLUSH must have a DISCONT flag")

	const caps = "caps"
	reg(caps, "is-missing-field", Issue,
		"caps is missing a required field for its type",
		"some caps types are expected to contain a set of basic fields")
	reg(caps, "field-has-bad-type", Warning,
		"caps field has an unexpected type", "")
	reg(caps, "expected-field-not-found", Warning,
		"caps expected field wasn't present",
		"a field that should be present in the caps wasn't found")
	reg(caps, "not-proxying-fields", Critical,
		"getcaps function isn't proxying downstream fields correctly", "")
	reg(caps, "field-unexpected-value", Critical,
		"a field in caps has an unexpected value", "")

	const event = "event"
	reg(event, "newsegment-not-pushed", Warning,
		"new segment event wasn't propagated downstream", "")
	reg(event, "serialized-event-not-pushed-in-time", Warning,
		"a serialized event received should be pushed at the same 'time' it was received", "")
	reg(event, "eos-has-wrong-seqnum", Issue,
		"EOS events from the same pipeline operation should share a seqnum", "")
	reg(event, "flush-start-has-wrong-seqnum", Issue,
		"FLUSH_START events from the same pipeline operation should share a seqnum", "")
	reg(event, "flush-stop-has-wrong-seqnum", Issue,
		"FLUSH_STOP events from the same pipeline operation should share a seqnum", "")
	reg(event, "segment-has-wrong-seqnum", Issue,
		"segment events from the same pipeline operation should share a seqnum", "")
	reg(event, "segment-has-wrong-start", Critical,
		"a segment doesn't have the proper time value after an accurate seek",
		"if a seek with the accurate flag was accepted, the following segment "+
			"should start exactly at the requested seek time")
	reg(event, "serialized-out-of-order", Warning,
		"a serialized event received should be pushed in the order it was received", "")
	reg(event, "new-segment-mismatch", Warning,
		"a new segment event has a different value than the one received", "")
	reg(event, "flush-start-unexpected", Warning,
		"received an unexpected flush-start event", "")
	reg(event, "flush-stop-unexpected", Warning,
		"received an unexpected flush-stop event", "")
	reg(event, "caps-duplicate", Warning,
		"received the same caps twice", "")
	reg(event, "seek-not-handled", Critical,
		"seek event wasn't handled", "")
	reg(event, "seek-result-position-wrong", Critical,
		"position after a seek is wrong", "")
	reg(event, "eos-without-segment", Warning,
		"EOS received without a prior segment event", "")
	reg(event, "invalid-seqnum", Critical,
		"event has an invalid seqnum", "")

	const state = "state"
	reg(state, "change-failure", Critical, "state change failed", "")

	const file = "file"
	reg(file, "size-incorrect", Warning, "resulting file size wasn't within the expected values", "")
	reg(file, "duration-incorrect", Warning, "resulting file duration wasn't within the expected values", "")
	reg(file, "seekable-incorrect", Warning, "resulting file wasn't seekable as expected", "")
	reg(file, "profile-incorrect", Critical, "resulting file stream profiles didn't match expected values", "")
	reg(file, "tag-detection-incorrect", Issue, "detected tags are different than expected", "")
	reg(file, "frames-incorrect", Critical, "resulting file frames are not as expected", "")
	reg(file, "segment-incorrect", Critical, "resulting segment is not as expected", "")
	reg(file, "no-stream-info", Warning, "the discoverer could not determine the stream info", "")
	reg(file, "no-stream-id", Warning, "the discoverer found a stream that had no stream ID", "")

	const allocation = "allocation"
	reg(allocation, "failure", Critical, "a memory allocation failed during the run", "")

	const plugin = "plugin"
	reg(plugin, "missing", Critical, "a required plugin is missing", "")

	const negotiation = "negotiation"
	reg(negotiation, "not-negotiated", Critical, "a NOT_NEGOTIATED message was posted on the bus", "")

	const bus = "bus"
	reg(bus, "warning", Warning, "a warning message was posted on the bus", "")
	reg(bus, "error", Critical, "an error message was posted on the bus", "")

	const query = "query"
	reg(query, "position-superior-duration", Warning,
		"position query reported a value superior to the duration query", "")
	reg(query, "position-out-of-segment", Warning,
		"position query reported a value outside of the current segment", "")

	const scenario = "scenario"
	reg(scenario, "not-ended", Critical,
		"the program stopped before some actions were executed", "")
	reg(scenario, "action-timeout", Critical,
		"the execution of an action timed out", "")
	reg(scenario, "file-malformed", Critical,
		"the scenario file was malformed", "")
	reg(scenario, "action-execution-error", Critical,
		"the execution of an action did not properly happen", "")
	reg(scenario, "action-execution-issue", Issue,
		"an issue happened during the execution of a scenario", "")

	const config = "config"
	reg(config, "latency-too-high", Critical,
		"the pipeline latency is higher than the maximum allowed by the scenario", "")
	reg(config, "too-many-buffers-dropped", Critical,
		"the number of dropped buffers is higher than the maximum allowed by the scenario", "")
	reg(config, "buffer-frequency-too-low", Critical,
		"pad buffer push frequency is lower than the minimum required by the config", "")

	const log = "log"
	reg(log, "warning", Warning, "a wrapped log warning was raised", "")
	reg(log, "critical", Critical, "a wrapped log critical was raised", "")
	reg(log, "issue", Issue, "a wrapped log issue was raised", "")
}
