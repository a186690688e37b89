// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - turn.*
//   - user_input.*
//   - assistant_response.*
//   - tool_call.*
//   - assistant_playback.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//
// turn events
//
//   - TurnStarted (turn.started): a new turn began.
//   - TurnPhaseChanged (turn.phase_changed): the turn moved between phases.
//   - TurnCompleted (turn.completed): the turn ran to completion.
//   - TurnFailed (turn.failed): the turn aborted with a fault.
//   - TurnInterrupted (turn.interrupted): the user barged in on the turn.
//
// user_input events
//
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptUpdated (user_input.transcript_updated): mutable interim
//     transcript snapshot.
//   - UserUtteranceFinal (user_input.utterance_final): terminal full
//     transcript for the utterance.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): streamed
//     response text segment.
//   - AssistantResponseFinal (assistant_response.final): the response text
//     stream is complete.
//   - AssistantResponseFallback (assistant_response.fallback): a canned
//     response replaced the generated one after a fault.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): tool execution started.
//   - ToolCallCompleted (tool_call.completed): tool execution completed.
//   - ToolCallFailed (tool_call.failed): tool execution failed.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): audible output
//     began for the turn.
//   - AssistantPlaybackCancelled (assistant_playback.cancelled): audible
//     output was cut off before completion.
//   - AssistantPlaybackEnded (assistant_playback.ended): all queued audio
//     finished playing.
package events
